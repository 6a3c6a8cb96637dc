package views

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookie carries pending flash messages between a redirect and the next page.
const FlashCookie = "flash"

// Flash types.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot user feedback message.
type Flash struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Success builds a success flash.
func Success(content string) Flash { return Flash{Type: FlashSuccess, Content: content} }

// Danger builds an error flash.
func Danger(content string) Flash { return Flash{Type: FlashDanger, Content: content} }

// AddFlash queues flashes for the next page, keeping the ones already pending on r.
func AddFlash(w http.ResponseWriter, r *http.Request, flashes ...Flash) {
	pending := append(readFlashes(r), flashes...)
	data, err := json.Marshal(pending)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the pending flashes and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) > 0 {
		http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1})
	}
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
