package timeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_SortsAndDropsEmpty(t *testing.T) {
	partials := []Timeline{
		{Source: "empty"},
		{Source: "rpc 300", Events: []Event{{Time: 30}, {Time: 10}}},
	}

	got := Partition(partials)

	require.Len(t, got, 1)
	assert.Equal(t, "rpc 300", got[0].Source)
	assert.Equal(t, int64(10), got[0].Events[0].Time)
	assert.Equal(t, int64(30), partials[1].Events[0].Time, "input must not be reordered")
}

func TestWriteHTML_OneLanePerPartial(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTML(&buf, tableFixture(), PageOptions{Title: "MIO operations 42", RunID: "run-1"})
	require.NoError(t, err)

	page := buf.String()
	assert.Contains(t, page, "<title>MIO operations 42</title>")
	assert.Contains(t, page, "run run-1")
	assert.Contains(t, page, "span 3.000 us")
	assert.Equal(t, 3, strings.Count(page, `class="lane"`))
	assert.Contains(t, page, "ioo 5")
}

func TestWriteHTML_Maximize(t *testing.T) {
	var normal, maxed bytes.Buffer
	require.NoError(t, WriteHTML(&normal, tableFixture(), PageOptions{}))
	require.NoError(t, WriteHTML(&maxed, tableFixture(), PageOptions{Maximize: true}))

	assert.Contains(t, normal.String(), "max-width:1200px")
	assert.NotContains(t, maxed.String(), "max-width:1200px")
}

func TestWriteHTML_EscapesSources(t *testing.T) {
	partials := []Timeline{{Source: "<script>", Events: []Event{{Time: 1}}}}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, partials, PageOptions{}))
	assert.NotContains(t, buf.String(), "<script>")
}

func TestWriteHTML_NoEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, nil, PageOptions{Title: "empty"}))
	assert.NotContains(t, buf.String(), `class="lane"`)
}
