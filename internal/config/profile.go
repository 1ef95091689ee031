package config

import "dits/internal/fastcdc"

// Profile resolves c's chunking configuration into a fastcdc.Profile,
// honoring explicit min/avg/max overrides over the named profile.
func (c Chunking) Profile() fastcdc.Profile {
	var base fastcdc.Profile
	switch c.Profile {
	case "video":
		base = fastcdc.VideoProfile
	case "small":
		base = fastcdc.SmallProfile
	default:
		base = fastcdc.DefaultProfile
	}
	if c.MinSize != 0 {
		base.Min = c.MinSize
	}
	if c.AvgSize != 0 {
		base.Avg = c.AvgSize
	}
	if c.MaxSize != 0 {
		base.Max = c.MaxSize
	}
	return base
}
