// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"fmt"

	"github.com/luxfi/elders/config"
	"github.com/luxfi/elders/state"
)

// SectionDetails is the structured payload SectionChecker reports,
// rendered as JSON by whatever surface a process exposes /health on.
type SectionDetails struct {
	Prefix      string `json:"prefix"`
	ElderCount  int    `json:"elderCount"`
	ElderTarget int    `json:"elderTarget"`
	Version     uint64 `json:"version"`
}

// SectionChecker reports a section unhealthy whenever its live elder
// count has fallen below the quorum of the configured elder target
// (params.Quorum(params.ElderSize)) (spec 4.3, 4.9.1).
func SectionChecker(st *state.SharedState, params config.Parameters) Checker {
	return CheckerFunc(func(_ context.Context) (interface{}, error) {
		info := st.OurInfo()
		details := SectionDetails{
			Prefix:      info.Prefix.String(),
			ElderCount:  len(info.Elders),
			ElderTarget: params.ElderSize,
			Version:     info.Version,
		}
		if details.ElderCount < params.Quorum(params.ElderSize) {
			return details, fmt.Errorf("only %d of %d target elders live, below quorum %d",
				details.ElderCount, params.ElderSize, params.Quorum(params.ElderSize))
		}
		return details, nil
	})
}
