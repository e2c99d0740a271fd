package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(".", barWidth)+"]", renderBar(-5))
	assert.Equal(t, "["+strings.Repeat("#", barWidth/2)+strings.Repeat(".", barWidth/2)+"]", renderBar(50))
	assert.Equal(t, "["+strings.Repeat("#", barWidth)+"]", renderBar(150))
}

func TestProgressPrinter_PlainOutput(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	for _, pct := range []int{0, 10, 24, 25, 60, 74} {
		p.Report(pct, models.MethodDirectSigned)
	}
	p.Report(0, models.MethodProxy)
	p.Report(90, models.MethodProxy)
	p.Report(100, models.MethodProxy)
	p.Done()

	assert.Equal(t, strings.Join([]string{
		"  direct_signed 0%",
		"  direct_signed 25%",
		"  direct_signed 50%",
		"  proxy 0%",
		"  proxy 75%",
		"  proxy 100%",
		"",
	}, "\n"), out.String())
}

func TestProgressPrinter_Interactive(t *testing.T) {
	var out bytes.Buffer
	p := &progressPrinter{w: &out, interactive: true, last: -1}

	p.Report(50, models.MethodProxy)
	p.Report(100, models.MethodProxy)
	p.Done()

	s := out.String()
	assert.Equal(t, 2, strings.Count(s, "\r"))
	assert.Contains(t, s, " 100% proxy")
	assert.True(t, strings.HasSuffix(s, "\n"))
}
