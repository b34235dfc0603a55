// Package config provides configuration parsing for the auto command.
//
// The configuration is stored in auto.yaml. Every key is optional; missing
// keys keep their defaults. Environment variables written as $VAR or ${VAR}
// are expanded before parsing.
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  metrics_path: /metrics
//	  feed_path: /ws
//	  tick_interval: 1s
//	demo:
//	  feed_url: ws://localhost:8080/ws
//	  passes: 10
//	  check_interval: 500ms
//	log:
//	  level: info      # debug, info, warn, error
//	  format: text     # text or json
//	checks:
//	  coalesce: false
//	metrics:
//	  enabled: true
//	  namespace: auto
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	ticker := time.NewTicker(cfg.TickInterval())
package config
