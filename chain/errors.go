// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

// ErrInvalidNewSectionKey is returned by Append when the proposed
// block's signature does not verify under the current tip's key, or
// its version does not strictly increase.
var ErrInvalidNewSectionKey = errors.New("chain: new section key block does not verify under current tip")

// ErrEmptyChain is returned by accessors that require at least a
// genesis block.
var ErrEmptyChain = errors.New("chain: chain has no blocks")
