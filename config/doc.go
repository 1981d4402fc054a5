// SPDX-License-Identifier: MIT

// Package config reads the YAML controls file of the rvine command and
// exchanges fitted models as YAML.
//
// A controls file overrides Default key by key:
//
//	family_set: [gaussian, clayton, gumbel]
//	par_method: itau
//	trunc_lvl: auto
//	threshold: 0.05
//	num_threads: 4
//
// trunc_lvl and threshold accept the word "auto". Unknown keys and family
// names are rejected by Load.
package config
