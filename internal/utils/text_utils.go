package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContentHashLength is the number of hex characters kept from the content digest
const ContentHashLength = 8

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// SenderKey normalizes an email address into the key used to index history
func (tp *TextProcessor) SenderKey(from string) string {
	return strings.ToLower(strings.TrimSpace(from))
}

// NormalizeContent lower-cases text, collapses whitespace runs to one space and trims it
func (tp *TextProcessor) NormalizeContent(text string) string {
	// A Caser is stateful, so one is built per call
	lowered := cases.Lower(language.Und).String(text)
	return strings.Join(strings.Fields(lowered), " ")
}

// ContentHash returns a coarse fingerprint of the normalized content.
// It detects repeated sends and is not a security primitive.
func (tp *TextProcessor) ContentHash(text string) string {
	sum := md5.Sum([]byte(tp.NormalizeContent(text)))
	return hex.EncodeToString(sum[:])[:ContentHashLength]
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	// Drop invalid UTF-8 sequences
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}
