// SPDX-License-Identifier: EPL-2.0

// Package cli holds the terminal styling of the splicebox command.
package cli
