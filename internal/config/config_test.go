package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	s.SetUint("wlan-ssid-len", 5)
	v, ok := s.Get("wlan-ssid-len")
	require.True(t, ok)
	require.Equal(t, KindU32, v.Kind)
	require.Equal(t, uint64(5), v.Uint)
}

func TestSetStringAndShow(t *testing.T) {
	s := New()
	s.SetString("hostname", "esp32-01")
	show := s.Show()
	require.Contains(t, show, "hostname")
	require.Contains(t, show, "esp32-01")
}

func TestEraseReportsExistence(t *testing.T) {
	s := New()
	require.False(t, s.Erase("missing"))
	s.SetInt("offset", -3)
	require.True(t, s.Erase("offset"))
	_, ok := s.Get("offset")
	require.False(t, ok)
}

func TestDumpListsAllSortedByKey(t *testing.T) {
	s := New()
	s.SetString("wlan-ssid", "home")
	s.SetString("hostname", "esp32-01")
	dump := s.Dump()
	require.Less(t, indexOf(dump, "hostname"), indexOf(dump, "wlan-ssid"))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
