package sitehost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsEncodePreservesInsertionOrder(t *testing.T) {
	p := NewParams().
		Add("zulu", "1").
		Add("alpha", "2").
		Add("mike", "3")

	assert.Equal(t, "zulu=1&alpha=2&mike=3", p.Encode())
}

func TestParamsEncodeEscapes(t *testing.T) {
	p := NewParams().
		Add("query[domain]", "example.com").
		Add("docker_compose", "version: '3'\nservices:")

	assert.Equal(t, "query%5Bdomain%5D=example.com&docker_compose=version%3A+%273%27%0Aservices%3A", p.Encode())
}

func TestParamsAllowsDuplicateKeys(t *testing.T) {
	p := NewParams().
		Add("name", "a").
		Add("name", "b")

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "name=a&name=b", p.Encode())
}

func TestParamsNilReceiver(t *testing.T) {
	var p *Params

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "", p.Encode())

	dst := NewParams().Add("keep", "me")
	assert.Same(t, dst, p.appendTo(dst))
	assert.Equal(t, "keep=me", dst.Encode())
}

func TestParamsAppendTo(t *testing.T) {
	auth := NewParams().Add("apikey", "k").Add("client_id", "c")
	body := NewParams().Add("domain", "example.com")

	merged := body.appendTo(auth)
	assert.Equal(t, "apikey=k&client_id=c&domain=example.com", merged.Encode())
}
