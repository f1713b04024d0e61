package sitehost

import (
	"net/url"
	"strings"
)

// Params is an ordered list of key/value pairs serialized in insertion
// order. net/url's Values.Encode sorts keys alphabetically, which would
// break the API's requirement that auth fields come first in POST
// bodies, so this type keeps an explicit pair list instead.
type Params struct {
	pairs []pair
}

type pair struct {
	key   string
	value string
}

// NewParams returns an empty parameter list.
func NewParams() *Params {
	return &Params{}
}

// Add appends a key/value pair, preserving insertion order.
func (p *Params) Add(key, value string) *Params {
	p.pairs = append(p.pairs, pair{key: key, value: value})
	return p
}

// Len returns the number of pairs. A nil receiver has length zero.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// Encode serializes the pairs as application/x-www-form-urlencoded in
// insertion order.
func (p *Params) Encode() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}

// appendTo copies every pair onto dst and returns dst.
func (p *Params) appendTo(dst *Params) *Params {
	if p == nil {
		return dst
	}
	dst.pairs = append(dst.pairs, p.pairs...)
	return dst
}
