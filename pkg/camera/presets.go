package camera

// Preset names for common capture configurations
const (
	PresetNative = "native"
	PresetQVGA   = "qvga"
	PresetVGA    = "vga"
	Preset720p   = "720p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetNative: DefaultConfig(),
		PresetQVGA:   QVGAConfig(),
		PresetVGA:    VGAConfig(),
		Preset720p:   HD720Config(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetNative, PresetQVGA, PresetVGA, Preset720p}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// QVGAConfig returns 320x240. Cheapest to process on slow boards, but
// markers shrink below the contour point threshold sooner.
func QVGAConfig() Config {
	return Config{Width: 320, Height: 240, Framerate: 30}
}

// VGAConfig returns 640x480, the resolution the steering sensitivity was tuned for.
func VGAConfig() Config {
	return Config{Width: 640, Height: 480, Framerate: 30}
}

// HD720Config returns 720p.
func HD720Config() Config {
	return Config{Width: 1280, Height: 720, Framerate: 30}
}
