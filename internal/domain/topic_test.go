package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Topic
		wantErr bool
	}{
		{name: "exact", input: "kestra", want: TopicKestra},
		{name: "mixed case and spaces", input: "  NextJS ", want: TopicNextJS},
		{name: "unknown", input: "angular", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopic(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTopic)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopicCollection(t *testing.T) {
	for _, topic := range Topics() {
		collection, err := topic.Collection()
		require.NoError(t, err)
		assert.Equal(t, "docs_"+string(topic), collection)
	}

	_, err := Topic("vue").Collection()
	require.ErrorIs(t, err, ErrInvalidTopic)
}

func TestTopicDefaultSourceTitle(t *testing.T) {
	assert.Equal(t, "Kestra Documentation", TopicKestra.DefaultSourceTitle())
	assert.Equal(t, "Next.js Documentation", TopicNextJS.DefaultSourceTitle())
	assert.Equal(t, "vue Documentation", Topic("vue").DefaultSourceTitle())
}

func TestDefaultTopicConfig(t *testing.T) {
	cfg := DefaultTopicConfig(TopicAstro)

	assert.Equal(t, "Chat with Astro Documentation", cfg.Heading)
	assert.Equal(t, "Ask about astro...", cfg.Placeholder)
}
