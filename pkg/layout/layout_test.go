package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCustomViewElement(t *testing.T) {
	content := []byte(`<?xml version="1.0" encoding="utf-8"?>
<com.example.CustomView xmlns:android="http://schemas.android.com/apk/res/android"
    android:layout_width="match_parent"
    android:layout_height="wrap_content" />`)

	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.CustomView"}, refs)
}

func TestExtractClassAttributes(t *testing.T) {
	content := []byte(`<?xml version="1.0" encoding="utf-8"?>
<LinearLayout xmlns:android="http://schemas.android.com/apk/res/android"
    xmlns:app="http://schemas.android.com/apk/res-auto">
    <com.example.CustomView android:layout_width="0dp" />
    <fragment android:name="com.example.settings.SettingsFragment" />
    <view class="com.example.widget.Gauge" />
    <FrameLayout app:fragmentClass="com.example.MyFragment" />
</LinearLayout>`)

	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"com.example.CustomView",
		"com.example.MyFragment",
		"com.example.settings.SettingsFragment",
		"com.example.widget.Gauge",
	}, refs)
}

func TestExtractHeuristicRejectsDottedConstants(t *testing.T) {
	content := []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android">
    <action android:label="android.intent.action.MAIN" />
    <item value="some.resource.id" />
    <meta data="1.2.3" />
</manifest>`)

	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestExtractBehaviorAttribute(t *testing.T) {
	// Generic attributes still match when the value is package-then-class
	// shaped: lowercase package prefix, capitalized simple name.
	content := []byte(`<View xmlns:app="http://schemas.android.com/apk/res-auto"
    app:layout_behavior="com.example.behavior.ScrollAware" />`)

	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.behavior.ScrollAware"}, refs)
}

func TestExtractToolsContext(t *testing.T) {
	content := []byte(`<LinearLayout xmlns:tools="http://schemas.android.com/tools"
    tools:context="com.example.MainActivity" />`)

	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.MainActivity"}, refs)
}

func TestExtractMalformed(t *testing.T) {
	_, err := Extract([]byte(`<LinearLayout><unclosed></LinearLayout>`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExtractDeduplicates(t *testing.T) {
	content := []byte(`<root>
    <com.example.CustomView />
    <com.example.CustomView />
</root>`)
	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.CustomView"}, refs)
}

func TestExtractNamespaceURLsIgnored(t *testing.T) {
	content := []byte(`<root xmlns:android="http://schemas.android.com/apk/res/android" />`)
	refs, err := Extract(content)
	require.NoError(t, err)
	assert.Empty(t, refs)
}
