// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"regexp"
)

// FileBlock is the fenced code extracted from a FILE instruction message.
type FileBlock struct {
	Lang string
	Body string
}

// ParseFileBlock returns the language tag and body of the first fenced block.
func ParseFileBlock(text string) (FileBlock, error) {
	open := fenceOpenRe.FindStringSubmatch(text)
	if open == nil {
		return FileBlock{}, Violation("fenced code block not found", nil)
	}
	lang := open[1]
	bodyRe, err := regexp.Compile("```" + regexp.QuoteMeta(lang) + `([\s\S]*?)` + "```")
	if err != nil {
		return FileBlock{}, Violation("invalid fenced block language tag", err)
	}
	body := bodyRe.FindStringSubmatch(text)
	if body == nil {
		return FileBlock{}, Violation("fenced code block is not terminated", nil).
			WithContext("lang", lang)
	}
	return FileBlock{Lang: lang, Body: body[1]}, nil
}
