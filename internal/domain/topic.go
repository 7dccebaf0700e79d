package domain

import (
	"fmt"
	"strings"
)

// Topic identifies one of the documentation collections a chat can be scoped to.
type Topic string

const (
	TopicReact  Topic = "react"
	TopicNextJS Topic = "nextjs"
	TopicAstro  Topic = "astro"
	TopicKestra Topic = "kestra"
	TopicRedux  Topic = "redux"
)

// collectionPrefix is prepended to a topic to form the backend collection name.
const collectionPrefix = "docs_"

var topicNames = map[Topic]string{
	TopicReact:  "React",
	TopicNextJS: "Next.js",
	TopicAstro:  "Astro",
	TopicKestra: "Kestra",
	TopicRedux:  "Redux",
}

// Topics returns every supported topic in display order.
func Topics() []Topic {
	return []Topic{TopicReact, TopicNextJS, TopicAstro, TopicKestra, TopicRedux}
}

// ParseTopic validates s against the supported topics.
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported topics.
func (t Topic) Valid() bool {
	_, ok := topicNames[t]
	return ok
}

// Collection resolves the backend collection name for t.
func (t Topic) Collection() (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, string(t))
	}
	return collectionPrefix + string(t), nil
}

// DisplayName returns the human readable name, or the raw value for unknown topics.
func (t Topic) DisplayName() string {
	if name, ok := topicNames[t]; ok {
		return name
	}
	return string(t)
}

// DefaultSourceTitle is used for sources the backend returns without a title.
func (t Topic) DefaultSourceTitle() string {
	return t.DisplayName() + " Documentation"
}
