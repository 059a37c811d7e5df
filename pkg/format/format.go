// Package format renders linked pairs and standalone shellcodes as
// instruction-tuning examples.
package format

import (
	"fmt"
	"strconv"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const (
	SourceCVEExploit = "cve-exploit"
	SourceShellcode  = "shellcode"

	NoScore = "N/A"
)

// Pair renders a linked pair.
func Pair(p types.LinkedPair) types.TrainingExample {
	return types.TrainingExample{
		Instruction: fmt.Sprintf("Generate a Proof-of-Concept (PoC) exploit for %s affecting %s.", p.CVEID, p.Platform),
		Input:       fmt.Sprintf("Vulnerability Description: %s\nCVSS Score: %s\nExploit Type: %s", p.CVEDescription, score(p.CVSSScore), p.ExploitType),
		Output:      p.ExploitCode,
		Source:      SourceCVEExploit,
	}
}

// Shellcode renders a shellcode record that stands on its own.
func Shellcode(s types.ExploitRecord) types.TrainingExample {
	return types.TrainingExample{
		Instruction: fmt.Sprintf("Generate shellcode for %s %s.", s.Platform, s.Type),
		Input:       fmt.Sprintf("Description: %s", s.Description),
		Output:      s.Content,
		Source:      SourceShellcode,
	}
}

// Format renders every pair, then every shellcode.
func Format(pairs []types.LinkedPair, shellcodes []types.ExploitRecord) []types.TrainingExample {
	examples := make([]types.TrainingExample, 0, len(pairs)+len(shellcodes))
	for _, p := range pairs {
		examples = append(examples, Pair(p))
	}
	for _, s := range shellcodes {
		examples = append(examples, Shellcode(s))
	}
	return examples
}

func score(s *float64) string {
	if s == nil {
		return NoScore
	}
	return strconv.FormatFloat(*s, 'f', 1, 64)
}
