// SPDX-License-Identifier: EPL-2.0

// Package config loads splicebox settings from YAML.
//
// Values missing from the file keep their Default:
//
//	sampler:
//	  max_duration: 174
//	  truncate: true
//	  undo_depth: 32
//	stretch:
//	  tempo_ratio: 1.0
//	  pitch_scale: 1.0
//	  detector: percussive
//	engine:
//	  arena_limit: 67108864
//	export:
//	  sample_rate: 0
//	  mono: false
//	logging:
//	  level: info
//	  format: text
//	  output: stderr
package config
