package search

import (
	"net/url"
	"strconv"
)

// URLOption adjusts how a query serializes back to a URL.
type URLOption func(*urlOptions)

type urlParam struct {
	key    string
	values []string
	remove bool
}

type urlOptions struct {
	replace bool
	params  []urlParam
}

// WithParam supplies values for a parameter. By default they are
// appended to the parameter's existing values; under WithReplace they
// replace them.
func WithParam(key string, values ...string) URLOption {
	return func(o *urlOptions) {
		o.params = append(o.params, urlParam{key: key, values: values})
	}
}

// WithoutParam removes a parameter entirely, regardless of the replace
// policy.
func WithoutParam(key string) URLOption {
	return func(o *urlOptions) {
		o.params = append(o.params, urlParam{key: key, remove: true})
	}
}

// WithReplace makes supplied parameter values replace existing ones
// instead of appending, for this call only.
func WithReplace() URLOption {
	return func(o *urlOptions) {
		o.replace = true
	}
}

// ToURL serializes the query parameters onto the given base path,
// preserving multi-valued parameters as repeated keys. The facet
// selection is a presentation concern and is never serialized.
// Options support the refine/remove-facet links on result pages:
// append or replace values and drop parameters. Supplying any
// parameter option resets pagination: a refined search starts over on
// page one, so page is dropped from the output. A bare path change
// keeps it.
func (q *Query) ToURL(path string, opts ...URLOption) (string, error) {
	base, err := url.Parse(path)
	if err != nil {
		return "", err
	}

	options := urlOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	values := url.Values{}
	if q.Params.Query != "" {
		values.Set("q", q.Params.Query)
	}
	for name, filterValues := range q.Params.Filters {
		for _, value := range filterValues {
			values.Add(name, value)
		}
	}
	for _, token := range q.Params.Sort {
		values.Add("sort", token)
	}
	if q.Params.Page > 0 {
		values.Set("page", strconv.Itoa(q.Params.Page))
	}
	if q.Params.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.Params.PageSize))
	}

	if len(options.params) > 0 {
		values.Del("page")
	}
	for _, param := range options.params {
		switch {
		case param.remove:
			values.Del(param.key)
		case options.replace:
			values[param.key] = append([]string(nil), param.values...)
		default:
			values[param.key] = append(values[param.key], param.values...)
		}
	}

	base.RawQuery = values.Encode()
	return base.String(), nil
}
