// Package config loads the configuration of hyde-settings itself.
//
// Configuration lives in a single directory, ~/.config/hyde by default or
// the directory given with --config-path. It holds config.yaml and, unless
// settingsDir says otherwise, the domain backing files:
//
//	settingsDir: settings
//	domains:
//	  window:
//	    file: hypr/window.conf
//	session:
//	  enabled: true
//	  timeout: 3s
//	  hooks:
//	    window:
//	      - hyprctl keyword general:border_size {{ borderWidth }}
//	assistant:
//	  model: gpt-4o-mini
//	logging:
//	  level: debug
//
// A missing config.yaml means the defaults from GetDefaultConfig. Fields
// are validated together and reported as ValidationErrors.
package config
