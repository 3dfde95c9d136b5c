// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gviegas/gfxbench/descriptor"
	"github.com/gviegas/gfxbench/driver/null"
)

func TestCharts(t *testing.T) {
	var n float64
	sensors := []Sensor{
		{Name: "counter", Read: func() (float64, error) { n++; return n, nil }},
		{Name: "broken", Read: func() (float64, error) { return 0, errors.New("no such file") }},
	}
	r, _ := newTestRunner(t, newStubTest(), 100*time.Millisecond, func(o *Options) { o.Sensors = sensors })
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"charts_query_frequency": 300})))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 3, r.Charts().Samples())

	g := r.Result()
	fps := g.Chart(ChartFPS)
	require.NotNil(t, fps)
	assert.Equal(t, []float64{300, 600, 900}, fps.Domain.Values)
	assert.Equal(t, []float64{10, 10, 10}, fps.Values[0].Values)

	c := g.Chart(ChartSensors)
	require.NotNil(t, c)
	require.Len(t, c.Values, 2)
	assert.Equal(t, "counter", c.Values[0].Name)
	assert.Equal(t, []float64{1, 2, 3}, c.Values[0].Values)
	assert.Equal(t, []float64{0, 0, 0}, c.Values[1].Values)
}

func TestChartsNoSamples(t *testing.T) {
	r, _ := newTestRunner(t, newStubTest(), 100*time.Millisecond)
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"charts_query_frequency": 5000})))
	require.NoError(t, r.Run(context.Background()))
	assert.Zero(t, r.Charts().Samples())
	assert.Nil(t, r.Result().Chart(ChartFPS))
	assert.Nil(t, r.Result().Chart(ChartSensors))
	assert.NotNil(t, r.Result().Charts)
}

func writeSysfs(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, s := range files {
		name = filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, []byte(s), 0o644))
	}
}

func TestSysfsSensors(t *testing.T) {
	assert.Empty(t, SysfsSensors(t.TempDir()))

	root := t.TempDir()
	writeSysfs(t, root, map[string]string{
		"devices/system/cpu/cpu0/cpufreq/scaling_cur_freq": "1000000\n",
		"devices/system/cpu/cpu1/cpufreq/scaling_cur_freq": "2000000\n",
		"class/devfreq/ff9a0000.gpu/cur_freq":              "400000000\n",
		"class/thermal/thermal_zone0/temp":                 "45000\n",
		"class/thermal/thermal_zone1/temp":                 "52500\n",
	})
	ss := SysfsSensors(root)
	require.Len(t, ss, 3)
	want := []struct {
		name  string
		value float64
	}{
		{SensorCPUFrequency, 1500},
		{SensorGPUFrequency, 400},
		{SensorTemperature, 52.5},
	}
	for i, w := range want {
		assert.Equal(t, w.name, ss[i].Name)
		x, err := ss[i].Read()
		require.NoError(t, err)
		assert.InDelta(t, w.value, x, 1e-9)
	}

	// Unreadable files are skipped.
	require.NoError(t, os.Remove(filepath.Join(root, "devices/system/cpu/cpu1/cpufreq/scaling_cur_freq")))
	x, err := ss[0].Read()
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, x, 1e-9)
	require.NoError(t, os.Remove(filepath.Join(root, "devices/system/cpu/cpu0/cpufreq/scaling_cur_freq")))
	_, err = ss[0].Read()
	assert.ErrorIs(t, err, errNoReading)
}

func TestSysfsSensorsDRM(t *testing.T) {
	root := t.TempDir()
	writeSysfs(t, root, map[string]string{
		"class/drm/card0/gt_cur_freq_mhz":     "300",
		"class/drm/card1/gt_cur_freq_mhz":     "1150",
		"class/devfreq/ff9a0000.gpu/cur_freq": "400000000",
	})
	ss := SysfsSensors(root)
	require.Len(t, ss, 1)
	x, err := ss[0].Read()
	require.NoError(t, err)
	assert.Equal(t, SensorGPUFrequency, ss[0].Name)
	assert.Equal(t, 1150.0, x)
}

func TestScreenshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	test := newStubTest()
	r, _ := newTestRunner(t, test, 100*time.Millisecond, func(o *Options) { o.ScreenshotDir = dir })
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{
		"test_id":           "gl/stub",
		"screenshot_frames": []int{250, 0, 250, 900, 5000},
		"screenshot_format": "BMP",
	})))
	assert.Equal(t, []int{0, 250, 900, 5000}, r.Time().Events())
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []int{0, 100, 200, 250, 350, 450, 550, 650, 750, 850, 900}, test.times)

	sc := r.Screenshots()
	assert.Zero(t, sc.Failed())
	assert.Equal(t, []string{
		filepath.Join(dir, "gl_stub_000000.bmp"),
		filepath.Join(dir, "gl_stub_000250.bmp"),
		filepath.Join(dir, "gl_stub_000900.bmp"),
	}, sc.Files())

	f, err := os.Open(sc.Files()[1])
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	cr, cg, cb, ca := img.At(10, 10).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{cr, cg, cb, ca})
}

func TestScreenshotsDisabled(t *testing.T) {
	test := newStubTest()
	r, _ := newTestRunner(t, test, 100*time.Millisecond)
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"screenshot_frames": []int{250}})))
	assert.Empty(t, r.Time().Events())
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, r.Screenshots().Files())
	assert.Len(t, test.times, 10)
}

func TestEncodeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{10, 20, 30, 255})
	decode := map[string]func(*bytes.Reader) (image.Image, error){
		descriptor.FormatPNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		descriptor.FormatBMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		descriptor.FormatTIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}
	for format, dec := range decode {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeImage(&buf, img, format))
			out, err := dec(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), out.Bounds())
			assert.Equal(t, color.RGBAModel.Convert(img.At(2, 1)), color.RGBAModel.Convert(out.At(2, 1)))
		})
	}
	assert.Error(t, EncodeImage(&bytes.Buffer{}, img, "jpeg"))
}

func TestScreenOnscreen(t *testing.T) {
	r, _ := newTestRunner(t, newStubTest(), 100*time.Millisecond)
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"max_rendered_frames": 3})))
	assert.Zero(t, r.Screen().Backbuffer())
	require.NoError(t, r.Run(context.Background()))
	s := r.Screen()
	assert.False(t, s.Offscreen())
	assert.Equal(t, 3, s.Presents())
	assert.Equal(t, 1, s.Backbuffer())
}

func TestScreenOffscreen(t *testing.T) {
	r, _ := newTestRunner(t, newStubTest(), 30*time.Millisecond)
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{
		"env": map[string]any{"width": 64, "height": 64, "offscreen": true},
	})))
	require.NoError(t, r.Run(context.Background()))
	s := r.Screen()
	assert.True(t, s.Offscreen())
	assert.Equal(t, 34, r.Time().Frames())
	// Every 100ms plus the last frame.
	assert.Equal(t, 9, s.Presents())
	assert.Zero(t, s.Backbuffer())
	assert.Equal(t, int64(10), r.Context().(*null.Context).Swaps())
}
