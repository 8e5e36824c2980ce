// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDescriptor parses a year or event descriptor. The markdown body
// becomes the description.
func ParseDescriptor(content []byte) (*Descriptor, error) {
	var d Descriptor
	body, err := decode(string(content), &d)
	if err != nil {
		return nil, err
	}
	d.Description = body
	return &d, nil
}

// ToMarkdown renders the descriptor as frontmatter plus description
func (d *Descriptor) ToMarkdown() ([]byte, error) {
	return encode(d, d.Description)
}

// ParseItem parses an item metadata file
func ParseItem(content []byte) (*Item, error) {
	var it Item
	body, err := decode(string(content), &it)
	if err != nil {
		return nil, err
	}
	it.Body = body
	return &it, nil
}

// ToMarkdown renders the item as frontmatter plus body
func (it *Item) ToMarkdown() ([]byte, error) {
	return encode(it, it.Body)
}

func decode(content string, out interface{}) (string, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return "", fmt.Errorf("failed to split frontmatter: %w", err)
	}

	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), out); err != nil {
			return "", fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	return strings.TrimSpace(body), nil
}

func encode(frontmatter interface{}, body string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	data, err := yaml.Marshal(frontmatter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		buf.Write(data)
	}
	buf.WriteString("---\n")

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// splitFrontmatter splits markdown content into frontmatter and body
func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))

	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return "", content, fmt.Errorf("frontmatter not properly closed")
	}

	closingIndex := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closingIndex = i
			break
		}
	}

	if closingIndex == -1 {
		return "", content, fmt.Errorf("frontmatter not properly closed")
	}

	frontmatter := strings.TrimRight(strings.Join(lines[1:closingIndex], "\n"), "\r\n")

	body := ""
	if closingIndex+1 < len(lines) {
		body = strings.Join(lines[closingIndex+1:], "\n")
	}

	return frontmatter, body, nil
}
