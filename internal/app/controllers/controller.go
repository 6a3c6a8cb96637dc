// Package controllers implements the page handlers of the shortener.
// Each controller turns a request into service calls and renders the outcome through views.
package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// decodeInput fills a form struct from a JSON body or from url-encoded form values.
// Form values are matched by the json tags of T.
func decodeInput[T any](r *http.Request) (T, error) {
	var in T
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}

	if err := r.ParseForm(); err != nil {
		return in, err
	}
	values := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		values[key] = r.PostForm.Get(key)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return in, err
	}
	err = json.Unmarshal(data, &in)
	return in, err
}

// pageParam reads the {page} route parameter. Anything unparsable is page 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		return 1
	}
	return page
}

// idParam reads the {id} route parameter. ok is false when it is not a positive integer.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
