// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Usecases depend on the Validator interface. V10Validator implements it with
// go-playground/validator, reports fields by their json name and adds the
// rules the auth flows need: password, personname, dateonly and otp.
package validator
