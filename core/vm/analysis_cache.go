// Copyright 2024 The flarevm Authors
// This file is part of the flarevm library.
//
// The flarevm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The flarevm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the flarevm library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

const analysisCacheSize = 4096

type analysisKey struct {
	codeHash common.Hash
	rev      Revision
}

// VM executes messages and memoizes code analysis across them. Analysis
// depends on the revision (the instruction set decides block boundaries and
// costs), so the cache key includes it. Safe for concurrent use.
type VM struct {
	cache *lru.Cache[analysisKey, *CodeAnalysis]
}

func NewVM() *VM {
	cache, _ := lru.New[analysisKey, *CodeAnalysis](analysisCacheSize)
	return &VM{cache: cache}
}

// Run executes msg against code, analyzing it on first sight and reusing the
// cached analysis afterwards.
func (vm *VM) Run(host Host, rev Revision, msg *Message, code []byte) Result {
	analysis := vm.analyze(rev, code, crypto.Keccak256Hash(code))
	return ExecuteAnalysis(host, rev, msg, code, analysis)
}

// RunWithCodeHash is Run for callers that already know the code's hash and
// want to spare the keccak.
func (vm *VM) RunWithCodeHash(host Host, rev Revision, msg *Message, code []byte, codeHash common.Hash) Result {
	analysis := vm.analyze(rev, code, codeHash)
	return ExecuteAnalysis(host, rev, msg, code, analysis)
}

func (vm *VM) analyze(rev Revision, code []byte, codeHash common.Hash) *CodeAnalysis {
	key := analysisKey{codeHash: codeHash, rev: rev}
	if analysis, ok := vm.cache.Get(key); ok {
		analysisHitCounter.Inc(1)
		return analysis
	}
	analysisMissCounter.Inc(1)
	analysis := Analyze(rev, code)
	vm.cache.Add(key, analysis)
	return analysis
}
