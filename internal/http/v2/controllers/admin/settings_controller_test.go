package admin

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettingsInput_Form(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantAuth  bool
		wantDebug bool
		wantKeep  bool
	}{
		{"checkboxes absent", url.Values{"host": {"h"}, "password": {"x"}}, false, false, false},
		{"checkboxes any value", url.Values{"auth": {""}, "debug": {"0"}, "password": {""}}, true, true, false},
		{"password field absent", url.Values{"host": {"h"}}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			in, err := parseSettingsInput(httptest.NewRecorder(), r)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuth, in.Auth)
			assert.Equal(t, tt.wantDebug, in.Debug)
			assert.Equal(t, tt.wantKeep, in.KeepPassword)
		})
	}
}

func TestParseSettingsInput_JSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"host":"smtp.example.com","port":465,"encryption":"ssl","debug":true}`))
	r.Header.Set("Content-Type", "application/json")
	in, err := parseSettingsInput(httptest.NewRecorder(), r)
	require.NoError(t, err)
	assert.Equal(t, "465", in.Port)
	assert.True(t, in.Debug)
	assert.False(t, in.Auth)
	assert.True(t, in.KeepPassword)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"port":"2525","password":""}`))
	r.Header.Set("Content-Type", "application/json")
	in, err = parseSettingsInput(httptest.NewRecorder(), r)
	require.NoError(t, err)
	assert.Equal(t, "2525", in.Port)
	assert.False(t, in.KeepPassword)
	assert.Equal(t, "", in.Password)
}

func TestParseSettingsInput_BadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"port":`))
	r.Header.Set("Content-Type", "application/json")
	_, err := parseSettingsInput(httptest.NewRecorder(), r)
	require.Error(t, err)
}
