// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package prompts

import (
	"strings"

	"github.com/jllopis/agentprompts/pkg/errors"
)

// Segment splits a document into raw agent blocks.
// Everything up to and including the first Marker is discarded. The remainder is
// split on every Separator occurrence and each piece is trimmed; empty pieces are
// dropped and order is preserved.
func Segment(document string) ([]string, error) {
	idx := strings.Index(document, Marker)
	if idx < 0 {
		return nil, errors.New(errors.CodeMarkerNotFound,
			"'"+Marker+"' marker not found", nil)
	}
	region := document[idx+len(Marker):]

	var blocks []string
	for _, piece := range strings.Split(region, Separator) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		blocks = append(blocks, piece)
	}
	return blocks, nil
}
