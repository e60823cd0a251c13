package browsertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/browser"
)

const table = `<html><body>
<div class="skills">
	<div class="row"><span class="name">Go</span><div><span class="count">3</span></div><div>2 times</div></div>
	<div class="row"><span class="name">Docker</span><div><span class="count"><span class="x"></span></span></div><div>1 time</div></div>
</div>
<input id="title" value="Engineer">
<textarea id="desc">old text</textarea>
<button id="open">Open</button>
<div id="modal" hidden><h3>Job Opportunity</h3></div>
</body></html>`

func TestPage_Queries(t *testing.T) {
	ctx := context.Background()
	p := New("https://app.example.com/", table)

	names, err := p.Texts(ctx, browser.Class("span", "name"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Docker"}, names)

	count := browser.Class("span", "count")
	required, err := p.Texts(ctx, count.Nth(1).Find("parent::div/following-sibling::div[1]"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 time"}, required)

	n, err := p.Count(ctx, count.Nth(1).Find("span[@class='x']"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := p.InputValue(ctx, browser.ID("input", "title"))
	require.NoError(t, err)
	assert.Equal(t, "Engineer", v)

	v, err = p.InputValue(ctx, browser.ID("textarea", "desc"))
	require.NoError(t, err)
	assert.Equal(t, "old text", v)

	_, err = p.Attribute(ctx, browser.ID("div", "nope"), "class")
	assert.ErrorIs(t, err, browser.ErrNotFound)
}

func TestPage_ClickHandlersMutateDocument(t *testing.T) {
	ctx := context.Background()
	p := New("https://app.example.com/", table)
	modal := browser.ID("div", "modal")
	open := browser.ID("button", "open")

	p.OnClick(open, func(p *Page) error {
		return p.RemoveAttr(modal, "hidden")
	})

	visible, err := p.IsVisible(ctx, modal)
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, p.Click(ctx, open))

	visible, err = p.IsVisible(ctx, modal)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.Equal(t, 1, p.ClickCount(open))
}

func TestPage_ClickHiddenElementFails(t *testing.T) {
	p := New("https://app.example.com/", table)
	err := p.Click(context.Background(), browser.ID("div", "modal"))
	assert.Error(t, err)
	assert.Empty(t, p.Clicked)
}

func TestPage_FillAndFailureInjection(t *testing.T) {
	ctx := context.Background()
	p := New("https://app.example.com/", table)
	title := browser.ID("input", "title")

	p.FailNext(OpFill, 1)
	assert.ErrorIs(t, p.Fill(ctx, title, "Staff Engineer"), ErrInjected)
	require.NoError(t, p.Fill(ctx, title, "Staff Engineer"))

	v, err := p.InputValue(ctx, title)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", v)

	filled, ok := p.FilledValue(title)
	assert.True(t, ok)
	assert.Equal(t, "Staff Engineer", filled)
}

func TestPage_NavigateAndClose(t *testing.T) {
	ctx := context.Background()
	p := New("about:blank", "<html></html>")
	p.Route("https://app.example.com/dashboard", `<html><body><h1>Dashboard</h1></body></html>`)

	assert.Error(t, p.Navigate(ctx, "https://app.example.com/unknown"))
	require.NoError(t, p.Navigate(ctx, "https://app.example.com/dashboard"))

	u, err := p.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/dashboard", u)

	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Close(ctx), "close is idempotent")
	assert.True(t, p.Closed())
	_, err = p.Count(ctx, browser.XPath("//h1"))
	assert.Error(t, err)
}

func TestPage_UploadClicksTrigger(t *testing.T) {
	ctx := context.Background()
	p := New("https://app.example.com/", table)
	open := browser.ID("button", "open")

	require.NoError(t, p.UploadViaChooser(ctx, open, "/tmp/resume.docx"))
	require.Len(t, p.Uploads, 1)
	assert.Equal(t, []string{"/tmp/resume.docx"}, p.Uploads[0].Paths)
	assert.Equal(t, 1, p.ClickCount(open))
}
