package static

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageKeepsFormValues(t *testing.T) {
	f := Form{Width: 640, Height: 480, Stations: 25, Random: true, Seed: 7}

	var buf bytes.Buffer
	require.NoError(t, WriteHead(&buf, f))
	require.NoError(t, WriteLogs(&buf, f, `<span style="color: #9ccc65">done</span>`))
	page := buf.String()

	assert.Contains(t, page, `name="width" value="640"`)
	assert.Contains(t, page, `name="height" value="480"`)
	assert.Contains(t, page, `name="stations" value="25"`)
	assert.Contains(t, page, `value="true" checked`)
	assert.Contains(t, page, `name="seed" value="7"`)
	assert.Contains(t, page, `/diagram.png?width=640&height=480&stations=25&random=true&seed=7`)
	assert.Contains(t, page, `<div id="logs"><span style="color: #9ccc65">done</span></div>`)
}

func TestPageUnchecked(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHead(&buf, Form{Width: 100, Height: 100, Stations: 1}))
	assert.NotContains(t, buf.String(), " checked>")
}
