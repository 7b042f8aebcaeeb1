package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDecoration(t *testing.T) {
	in := "**Sixers Sends/Receives**\r\n\r\n" +
		"• Ausar Thompson 82 (13)\n" +
		"- __Jaden__ McDaniels 83 (15)\n" +
		"> `quoted` line\n" +
		"## Heading\n" +
		"<@!1234> <#987> ||spoiler||\n" +
		"--\n"

	want := []string{
		"Sixers Sends/Receives",
		"Ausar Thompson 82 (13)",
		"Jaden McDaniels 83 (15)",
		"quoted line",
		"Heading",
		"spoiler",
		"--",
	}

	assert.Equal(t, want, StripDecoration(in))
}

func TestStripDecorationEmpty(t *testing.T) {
	assert.Empty(t, StripDecoration("  \n\r\n **** \n"))
}
