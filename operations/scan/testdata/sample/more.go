package sample

import (
	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
)

func Values(*memory.WorkingMemory) ([]content.Value, error) {
	return nil, nil
}

func Candidates() []string {
	return nil
}

func init() {}
