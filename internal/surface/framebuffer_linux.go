//go:build linux

package surface

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"adloop/internal/system"
)

const defaultDevice = "/dev/fb0"

// framebuffer packs pixels straight into the Linux framebuffer device.
// This is the production path on the Raspberry Pi console, where no
// display server runs. Only 32 bpp (XRGB8888) and 16 bpp (RGB565)
// visuals are supported; both cover every Pi firmware default.
type framebuffer struct {
	logger *zap.Logger
	dev    *os.File
	width  int
	height int
	stride int    // bytes per row
	bpp    int    // bits per pixel
	buf    []byte // staging buffer, written in one WriteAt
}

func newPlatformSurface(opts Options) (Surface, error) {
	device := opts.Device
	if device == "" {
		device = defaultDevice
	}

	// Ask the firmware for the wanted mode first; a rotated portrait
	// setup needs this before the geometry read. Refusal is fine, we
	// adopt whatever the hardware reports below.
	if opts.Width > 0 && opts.Height > 0 {
		if w, h, err := readVirtualSize(device); err == nil && (w != opts.Width || h != opts.Height) {
			if err := system.SetResolution(opts.Width, opts.Height); err != nil {
				opts.Logger.Warn("framebuffer mode request refused",
					zap.Int("width", opts.Width), zap.Int("height", opts.Height), zap.Error(err))
			}
		}
	}

	width, height, err := readVirtualSize(device)
	if err != nil {
		return nil, fmt.Errorf("framebuffer geometry: %w", err)
	}
	bpp, err := readSysfsInt(device, "bits_per_pixel")
	if err != nil {
		return nil, fmt.Errorf("framebuffer depth: %w", err)
	}
	if bpp != 32 && bpp != 16 {
		return nil, fmt.Errorf("unsupported framebuffer depth: %d bpp", bpp)
	}

	stride, err := readSysfsInt(device, "stride")
	if err != nil {
		stride = width * bpp / 8
	}

	dev, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	opts.Logger.Info("framebuffer surface ready",
		zap.String("device", device),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bpp", bpp))

	return &framebuffer{
		logger: opts.Logger,
		dev:    dev,
		width:  width,
		height: height,
		stride: stride,
		bpp:    bpp,
		buf:    make([]byte, stride*height),
	}, nil
}

func (f *framebuffer) Bounds() (int, int) {
	return f.width, f.height
}

// Present converts the frame to the device pixel format and writes it
// in a single syscall. The frame must match the surface extents; the
// compositor guarantees this in normal operation.
func (f *framebuffer) Present(frame *image.NRGBA) error {
	b := frame.Bounds()
	if b.Dx() != f.width || b.Dy() != f.height {
		return fmt.Errorf("frame %dx%d does not match framebuffer %dx%d",
			b.Dx(), b.Dy(), f.width, f.height)
	}

	switch f.bpp {
	case 32:
		for y := 0; y < f.height; y++ {
			src := frame.Pix[y*frame.Stride:]
			dst := f.buf[y*f.stride:]
			for x := 0; x < f.width; x++ {
				si, di := x*4, x*4
				// XRGB8888 is little-endian B, G, R, X in memory.
				dst[di+0] = src[si+2]
				dst[di+1] = src[si+1]
				dst[di+2] = src[si+0]
				dst[di+3] = 0xff
			}
		}
	case 16:
		for y := 0; y < f.height; y++ {
			src := frame.Pix[y*frame.Stride:]
			dst := f.buf[y*f.stride:]
			for x := 0; x < f.width; x++ {
				si := x * 4
				px := uint16(src[si]>>3)<<11 | uint16(src[si+1]>>2)<<5 | uint16(src[si+2]>>3)
				dst[x*2] = byte(px)
				dst[x*2+1] = byte(px >> 8)
			}
		}
	}

	if _, err := f.dev.WriteAt(f.buf, 0); err != nil {
		return fmt.Errorf("framebuffer write: %w", err)
	}
	return nil
}

func (f *framebuffer) Release() {
	if f.dev != nil {
		f.dev.Close()
		f.dev = nil
	}
}

// readVirtualSize parses /sys/class/graphics/<fb>/virtual_size, which
// holds "width,height".
func readVirtualSize(device string) (int, int, error) {
	raw, err := readSysfs(device, "virtual_size")
	if err != nil {
		return 0, 0, err
	}
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected virtual_size %q", raw)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse virtual_size width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse virtual_size height: %w", err)
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("degenerate virtual_size %q", raw)
	}
	return w, h, nil
}

func readSysfsInt(device, attr string) (int, error) {
	raw, err := readSysfs(device, attr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", attr, err)
	}
	return v, nil
}

func readSysfs(device, attr string) (string, error) {
	path := filepath.Join("/sys/class/graphics", filepath.Base(device), attr)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
