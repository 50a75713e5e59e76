package activation

import (
	"fmt"
	"strings"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 8
)

// CodeGenerator produces candidate activation codes. Uniqueness is checked by the registry.
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func() (string, error)

func (f CodeGeneratorFunc) Generate() (string, error) {
	return f()
}

type nanoidGenerator struct {
	next func() string
}

// NewCodeGenerator returns a crypto-random generator over CodeAlphabet.
func NewCodeGenerator() (CodeGenerator, error) {
	next, err := nanoid.CustomASCII(CodeAlphabet, CodeLength)
	if err != nil {
		return nil, fmt.Errorf("building code generator: %w", err)
	}
	return nanoidGenerator{next: next}, nil
}

func (g nanoidGenerator) Generate() (string, error) {
	return g.next(), nil
}

// IsValidCode reports whether code has the activation code shape.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}
