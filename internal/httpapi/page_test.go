package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_RedirectsToFreshForm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/forms/"), loc)

	id := strings.TrimPrefix(loc, "/forms/")
	_, err := env.deps.Sessions.Get(id)
	assert.NoError(t, err)
}

func TestFormPage_RendersChipsInOrder(t *testing.T) {
	env := newTestEnv(t)
	id := env.newForm(t)
	for _, e := range []string{"React", "<b>Go</b>", "react"} {
		env.do(t, http.MethodPost, "/api/forms/"+id+"/tags/required_skills", confirmTagReq{Entry: e})
	}

	rec := env.do(t, http.MethodGet, "/forms/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	form := doc.Find("#campaignForm")
	assert.Equal(t, id, form.AttrOr("data-form-id", ""))

	chips := doc.Find(`[data-chips-for="required_skills"] .skill-tag`)
	require.Equal(t, 2, chips.Length())
	var tokens []string
	chips.Each(func(_ int, s *goquery.Selection) {
		tokens = append(tokens, s.AttrOr("data-token", ""))
	})
	assert.Equal(t, []string{"react", "<b>go</b>"}, tokens)
	assert.Equal(t, "react,<b>go</b>", doc.Find(`[data-value-for="required_skills"]`).AttrOr("value", ""))

	// labels are shown as typed, escaped rather than interpreted
	assert.Equal(t, 0, chips.Find("b").Length())
	assert.Contains(t, chips.Eq(1).Text(), "<b>Go</b>")
	assert.Equal(t, 0, doc.Find(`[data-chips-for="preferred_skills"] .skill-tag`).Length())

	// tag inputs carry no name so the page never posts them as scalars
	_, named := doc.Find("#required_skills").Attr("name")
	assert.False(t, named)

	label := doc.Find(`label[for="required_skills"]`)
	assert.Equal(t, 1, label.Find(".required").Length())
	assert.Equal(t, 0, doc.Find(`label[for="preferred_skills"] .required`).Length())

	_, required := doc.Find("#job_title").Attr("required")
	assert.True(t, required)
	assert.Equal(t, "email", doc.Find("#recruiter_email").AttrOr("type", ""))
	assert.Equal(t, 1, doc.Find("textarea#company_keywords").Length())

	_, hidden := doc.Find("#successMessage").Attr("hidden")
	assert.True(t, hidden)
	_, disabled := doc.Find("#submitBtn").Attr("disabled")
	assert.False(t, disabled)
}

func TestFormPage_ShowsSuccessAfterSubmit(t *testing.T) {
	env := newTestEnv(t)
	id := env.newForm(t)
	env.do(t, http.MethodPost, "/api/forms/"+id+"/tags/required_skills", confirmTagReq{Entry: "Go"})
	rec := env.do(t, http.MethodPost, "/api/forms/"+id+"/submit", submitReq{Fields: completeFields()})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/forms/"+id, nil)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	_, hidden := doc.Find("#successMessage").Attr("hidden")
	assert.False(t, hidden)
	assert.Equal(t, "abc123", doc.Find("#requestId").Text())
	_, disabled := doc.Find("#submitBtn").Attr("disabled")
	assert.True(t, disabled)
}

func TestFormPage_UnknownFormStartsOver(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/forms/expired", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestStatic_ServesScript(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/static/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "preventDefault")
}
