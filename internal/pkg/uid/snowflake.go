package uid

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ErrInvalidNode indicates a snowflake node outside the 10-bit node range.
var ErrInvalidNode = errors.New("uid: snowflake node must be between 0 and 1023")

// Snowflake generates 63-bit ids (41 bits time, 10 bits node, 12 bits sequence).
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator for the given node. Every replica
// of the service must use a distinct node.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 || node > 1023 {
		return nil, ErrInvalidNode
	}

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node: %w", err)
	}

	return &Snowflake{node: n}, nil
}

// Generate returns a new id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
