// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// headerVarPrefix marks a header value that is copied from a variable.
const headerVarPrefix = "var."

// headerTemplate is one configured record header.
type headerTemplate struct {
	name string

	// literal is used when variable is empty.
	literal  string
	variable string
}

// compileHeaders turns the header parameters into templates, ordered by name so
// every record carries its headers in the same order.
//
// A value of the form "var.<name>" copies the variable <name> from the
// iteration's variables; anything else is sent literally.
func compileHeaders(defs map[string]string) ([]headerTemplate, error) {
	templates := make([]headerTemplate, 0, len(defs))

	for name, value := range defs {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("header name must not be empty"))
		}

		tmpl := headerTemplate{name: name}
		if rest, ok := strings.CutPrefix(value, headerVarPrefix); ok {
			rest = strings.TrimSpace(rest)
			if rest == "" {
				return nil, errors.Join(ErrConfiguration,
					fmt.Errorf("header %q references an empty variable name", name))
			}
			tmpl.variable = rest
		} else {
			tmpl.literal = value
		}
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].name < templates[j].name
	})

	return templates, nil
}

// buildHeaders resolves the templates against vars.  Variable references that
// are missing or empty produce no header.
func buildHeaders(templates []headerTemplate, vars Variables) []kgo.RecordHeader {
	if len(templates) == 0 {
		return nil
	}

	headers := make([]kgo.RecordHeader, 0, len(templates))
	for _, tmpl := range templates {
		if tmpl.variable == "" {
			headers = append(headers, kgo.RecordHeader{
				Key:   tmpl.name,
				Value: []byte(tmpl.literal),
			})
			continue
		}

		if vars == nil {
			continue
		}
		v, ok := vars.Get(tmpl.variable)
		if !ok || v == nil {
			continue
		}
		if s := valueString(v); s != "" {
			headers = append(headers, kgo.RecordHeader{
				Key:   tmpl.name,
				Value: []byte(s),
			})
		}
	}

	return headers
}
