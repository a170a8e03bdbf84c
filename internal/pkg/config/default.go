package config

import "github.com/spf13/viper"

// setDefaults registers the values the service falls back to when neither the
// config file nor the environment sets a key. Secrets have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.tz", "UTC")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("app.maintenance", false)
	v.SetDefault("app.server.max_goroutine", 100)
	v.SetDefault("app.server.http.address", ":8080")
	v.SetDefault("app.server.http.read_timeout_seconds", 15)
	v.SetDefault("app.server.http.read_header_timeout_seconds", 5)
	v.SetDefault("app.server.http.write_timeout_seconds", 15)
	v.SetDefault("app.server.http.idle_timeout_seconds", 60)
	v.SetDefault("jwt.issuer", "otpauth")
	v.SetDefault("jwt.audiences", "otpauth")
	v.SetDefault("jwt.ttl_days", 7)
	v.SetDefault("otp.ttl_minutes", 10)
	v.SetDefault("otp.lock_ttl_ms", 5000)
	v.SetDefault("otp.lock_wait_ms", 3000)
	v.SetDefault("otp.delivery", "mail")
	v.SetDefault("otp.topic", "auth.otp.issued")
	v.SetDefault("otp.consumer_group", "auth.otp.issued.notification")
	v.SetDefault("messaging.driver", "memory")
	v.SetDefault("hash.password.algorithm", "bcrypt")
	v.SetDefault("hash.bcrypt.cost", 10)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("storage.max_upload_bytes", 5 << 20)
	v.SetDefault("database.migrate", true)
	v.SetDefault("mail.from_name", "Auth System")
	v.SetDefault("mail.retry.max_attempts", 3)
	v.SetDefault("mail.retry.base_delay_ms", 200)
	v.SetDefault("instrument.service_name", "otpauth")
	v.SetDefault("instrument.trace_sample_ratio", 1.0)
	v.SetDefault("instrument.metric_interval_seconds", 30)
	v.SetDefault("instrument.log_mask_fields", "password,otp,code,token,authorization")
	v.SetDefault("modules.auth.enabled", true)
	v.SetDefault("modules.notification.enabled", true)
}
