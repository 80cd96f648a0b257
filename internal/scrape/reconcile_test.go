package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

const closuresPage = `<html><body>
<h2>Closures</h2>
<table>
  <thead><tr><th>When</th><th>Where</th><th>What’s happening</th></tr></thead>
  <tbody>
    <tr>
      <td>1 May to 3 May</td>
      <td>Kingston Bridge</td>
      <td><a href="https://example.org/kingston">Bridge works</a>: navigation restricted to the centre arch</td>
    </tr>
    <tr>
      <td>From 10 June</td>
      <td>Boulter's Lock</td>
      <td><a href="https://example.org/boulters">Lock closure</a>: lock closed for repairs</td>
    </tr>
  </tbody>
</table>
<h2>Contacts</h2>
<table>
  <tr><th>Office</th><th>Telephone</th></tr>
  <tr><td>Waterways</td><td>0300 000 0000</td></tr>
</table>
</body></html>`

func TestReconcile_Closures(t *testing.T) {
	rows, err := Reconcile(strings.NewReader(closuresPage), ClosuresOptions())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1 May to 3 May", rows[0].Get(ColumnWhen))
	assert.Equal(t, "Kingston Bridge", rows[0].Get(ColumnWhere))
	assert.Equal(t, domain.LocalYes, rows[0].Local)
	assert.Equal(t, "https://example.org/kingston", rows[0].Link)
	assert.Equal(t,
		"<a href='https://example.org/kingston' target='_blank'>Bridge works</a>: navigation restricted to the centre arch",
		rows[0].Event)

	assert.Equal(t, domain.LocalNo, rows[1].Local)
	assert.Equal(t, "https://example.org/boulters", rows[1].Link)
}

const closuresLinkMismatchPage = `<table>
  <tr><th>When</th><th>Where</th><th>What's happening</th></tr>
  <tr>
    <td>Now</td>
    <td>Sunbury Lock</td>
    <td><a href="https://example.org/a">Closure</a>: weir works, see <a href="https://example.org/b">notice</a></td>
  </tr>
  <tr>
    <td>Later</td>
    <td>Molesey Lock</td>
    <td>Restriction: reduced headroom</td>
  </tr>
  <tr>
    <td>Next week</td>
    <td>Old Windsor</td>
    <td><a href="https://example.org/c">Event</a>: <a href="https://example.org/d">rowing</a> regatta</td>
  </tr>
</table>`

func TestReconcile_LinkCountMismatchBlanksTable(t *testing.T) {
	rows, err := Reconcile(strings.NewReader(closuresLinkMismatchPage), ClosuresOptions())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for _, r := range rows {
		assert.Empty(t, r.Link)
	}
	assert.Equal(t, "Restriction : reduced headroom", rows[1].Event)
	assert.Equal(t, domain.LocalYes, rows[0].Local)
	assert.Equal(t, domain.LocalYes, rows[1].Local)
	assert.Equal(t, domain.LocalNo, rows[2].Local)
}

const conditionsPage = `<html><body>
<table>
  <tr><th>Stretch</th><th>Conditions</th></tr>
  <tr><td>Staines to Windsor</td><td>Caution strong stream</td></tr>
  <tr><td>Lechlade</td><td>No stream warnings</td></tr>
</table>
<table>
  <tr><th>Reach</th><th>Current conditions</th></tr>
  <tr><td>Sunbury to Molesey</td><td>Caution stream decreasing</td></tr>
</table>
<table>
  <tr><th>A</th><th>B</th><th>C</th></tr>
  <tr><td>1</td><td>2</td><td>3</td></tr>
</table>
</body></html>`

func TestReconcile_Conditions(t *testing.T) {
	rows, err := Reconcile(strings.NewReader(conditionsPage), ConditionsOptions())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Staines", rows[0].Get(ColumnFrom))
	assert.Equal(t, "Windsor", rows[0].Get(ColumnTo))
	assert.Equal(t, "Caution strong stream", rows[0].Get(ColumnConditions))
	assert.Equal(t, domain.LocalNo, rows[0].Local)

	assert.Equal(t, "Lechlade", rows[1].Get(ColumnFrom))
	assert.Equal(t, "", rows[1].Get(ColumnTo))

	assert.Equal(t, "Sunbury", rows[2].Get(ColumnFrom))
	assert.Equal(t, "Molesey", rows[2].Get(ColumnTo))
	assert.Equal(t, domain.LocalYes, rows[2].Local)
	assert.Empty(t, rows[2].Event)
}

const conditionsTDHeaderPage = `<table>
  <tr><td>Reach</td><td>Current conditions</td></tr>
  <tr><td>Kingston to Teddington</td><td><a href="https://example.org/k">Yellow boards</a></td></tr>
</table>`

func TestReconcile_ConditionsHeaderInTD(t *testing.T) {
	rows, err := Reconcile(strings.NewReader(conditionsTDHeaderPage), ConditionsOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Kingston", rows[0].Get(ColumnFrom))
	assert.Equal(t, "Teddington", rows[0].Get(ColumnTo))
	assert.Equal(t, "Yellow boards", rows[0].Get(ColumnConditions))
	assert.Equal(t, "https://example.org/k", rows[0].Link)
	assert.Equal(t, domain.LocalYes, rows[0].Local)

	// Closures only accept tables with a real header row.
	closures, err := Reconcile(strings.NewReader(conditionsTDHeaderPage), ClosuresOptions())
	require.NoError(t, err)
	assert.Empty(t, closures)
}

func TestReconcile_EventEscapesMarkup(t *testing.T) {
	page := `<table>
  <tr><th>When</th><th>Where</th><th>What's happening</th></tr>
  <tr><td>Now</td><td>Sunbury</td><td><a href="https://x.org/a'onmouseover='alert(1)">&lt;img src=x onerror=alert(1)&gt;</a>: works</td></tr>
</table>`
	rows, err := Reconcile(strings.NewReader(page), ClosuresOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t,
		"<a href='https://x.org/a&#39;onmouseover=&#39;alert(1)' target='_blank'>&lt;img src=x onerror=alert(1)&gt;</a>: works",
		rows[0].Event)
}

func TestReconcile_NoMatchingTables(t *testing.T) {
	tests := []struct {
		name string
		page string
		opts Options
	}{
		{"empty page", "", ClosuresOptions()},
		{"no tables", "<p>Nothing to report</p>", ConditionsOptions()},
		{"wrong header", `<table><tr><th>When</th><th>Where</th></tr><tr><td>a</td><td>b</td></tr></table>`, ClosuresOptions()},
		{"header order matters", `<table><tr><th>Where</th><th>When</th><th>What's happening</th></tr></table>`, ClosuresOptions()},
		{"header case matters", `<table><tr><th>when</th><th>where</th><th>what's happening</th></tr></table>`, ClosuresOptions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Reconcile(strings.NewReader(tt.page), tt.opts)
			require.NoError(t, err)
			assert.NotNil(t, rows)
			assert.Empty(t, rows)
		})
	}
}

func TestReconcile_PreservesDocumentOrder(t *testing.T) {
	page := `<table><tr><th>When</th><th>Where</th><th>What's happening</th></tr>
<tr><td>1</td><td>A</td><td>x</td></tr><tr><td>2</td><td>B</td><td>y</td></tr></table>
<table><tr><th>When</th><th>Where</th><th>What's happening</th></tr>
<tr><td>3</td><td>C</td><td>z</td></tr></table>`

	rows, err := Reconcile(strings.NewReader(page), ClosuresOptions())
	require.NoError(t, err)

	var got []string
	for _, r := range rows {
		got = append(got, r.Get(ColumnWhen))
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestReconcile_NestedTablesAreSeparate(t *testing.T) {
	page := `<table><tr><th>When</th><th>Where</th><th>What's happening</th></tr>
<tr><td>Today</td><td>Walton</td><td>Regatta<table><tr><td>inner</td></tr></table></td></tr></table>`

	rows, err := Reconcile(strings.NewReader(page), ClosuresOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Walton", rows[0].Get(ColumnWhere))
}

func TestSplitFirst(t *testing.T) {
	tests := []struct {
		in, before, after string
	}{
		{"Staines to Windsor", "Staines", "Windsor"},
		{"Lechlade", "Lechlade", ""},
		{"Day's Lock to Benson to Wallingford", "Day's Lock", "Benson to Wallingford"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, a := splitFirst(tt.in, " to ")
			assert.Equal(t, tt.before, b)
			assert.Equal(t, tt.after, a)
		})
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name, text, link, sep, want string
	}{
		{"linked", "Closure: weir", "http://x", " ", "<a href='http://x' target='_blank'>Closure</a>: weir"},
		{"unlinked with space", "Closure: weir", "", " ", "Closure : weir"},
		{"unlinked without space", "Closure: weir", "", "", "Closure: weir"},
		{"no colon linked", "Regatta", "http://x", " ", "<a href='http://x' target='_blank'>Regatta</a>"},
		{"no colon unlinked", "Regatta", "", " ", "Regatta"},
		{"markup escaped", "<img src=x>: works", "https://x.org/a'b", " ", "<a href='https://x.org/a&#39;b' target='_blank'>&lt;img src=x&gt;</a>: works"},
		{"unlinked escaped", "Fish & chips: <b>", "", " ", "Fish &amp; chips : &lt;b&gt;"},
		{"first colon only", "A: b: c", "", "", "A: b: c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEvent(tt.text, tt.link, tt.sep))
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "What's happening", normalize("  What’s\n   happening "))
}
