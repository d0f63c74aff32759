// Package directory is the read-only registry of business identity, service
// catalog and areas served.
package directory

import "strings"

type Profile struct {
	Name        string   `json:"name"`
	Lead        string   `json:"lead"`
	Assistant   string   `json:"assistant"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Areas       []string `json:"areas"`
	Established int      `json:"established"`
	NICEIC      bool     `json:"niceic"`
}

type Service struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Directory is immutable after construction; accessors return copies.
type Directory struct {
	profile  Profile
	services []Service
}

func New(profile Profile, services []Service) *Directory {
	p := profile
	p.Areas = append([]string(nil), profile.Areas...)
	svcs := make([]Service, len(services))
	for i, s := range services {
		s.Features = append([]string(nil), s.Features...)
		svcs[i] = s
	}
	return &Directory{profile: p, services: svcs}
}

// Default returns the bundled Parker Electrical Solutions directory.
func Default() *Directory {
	return New(defaultProfile, defaultServices)
}

func (d *Directory) Profile() Profile {
	p := d.profile
	p.Areas = append([]string(nil), d.profile.Areas...)
	return p
}

func (d *Directory) Services() []Service {
	out := make([]Service, len(d.services))
	for i, s := range d.services {
		s.Features = append([]string(nil), s.Features...)
		out[i] = s
	}
	return out
}

// ServiceBySlug looks a listing up by its URL slug, case-insensitively.
func (d *Directory) ServiceBySlug(slug string) (Service, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, s := range d.services {
		if s.Slug == slug {
			s.Features = append([]string(nil), s.Features...)
			return s, true
		}
	}
	return Service{}, false
}

func (d *Directory) ServiceTitles() []string {
	titles := make([]string, len(d.services))
	for i, s := range d.services {
		titles[i] = s.Title
	}
	return titles
}

var defaultProfile = Profile{
	Name:        "Parker Electrical Solutions",
	Lead:        "Joe Parker",
	Assistant:   "Sparky",
	Phone:       "+447737447302",
	Email:       "pesolutions.ltd@hotmail.com",
	Areas:       []string{"All of Essex", "Brentwood", "Harlow", "Chelmsford", "Basildon", "Southend", "Romford", "Ilford"},
	Established: 2014,
	NICEIC:      true,
}

var defaultServices = []Service{
	{
		ID:          "eicr",
		Title:       "EICR Certificates & Testing",
		Slug:        "eicr-certificates",
		Description: "NICEIC approved landlord safety testing and reports.",
		Features:    []string{"Fast Turnaround", "Detailed Reports", "Remedial Estimates", "NICEIC Certified"},
	},
	{
		ID:          "emergency",
		Title:       "Emergency Electrician 24/7",
		Slug:        "emergency-electrician",
		Description: "Fast response electrical repairs when you need them most.",
		Features:    []string{"24/7 Availability", "Under 60min Response", "Fault Finding", "Safe & Secure Repairs"},
	},
	{
		ID:          "domestic",
		Title:       "Domestic Electrical Work",
		Slug:        "domestic-electrician",
		Description: "From extra sockets to full home automation and lighting.",
		Features:    []string{"House Wiring", "Lighting Design", "Socket Upgrades", "Fuse Board Changes"},
	},
	{
		ID:          "commercial",
		Title:       "Commercial Services",
		Slug:        "commercial-electrician",
		Description: "Maintenance and installations for offices, shops, and units.",
		Features:    []string{"Office Fit-outs", "Maintenance Contracts", "Emergency Lighting", "PAT Testing"},
	},
	{
		ID:          "ev",
		Title:       "EV Charger Installation",
		Slug:        "ev-charger-installation",
		Description: "Expert installation of home and commercial EV charging points.",
		Features:    []string{"Smart Chargers", "Tethered & Socketed", "Load Management", "Grant Support"},
	},
	{
		ID:          "rewiring",
		Title:       "House Rewiring",
		Slug:        "house-rewiring",
		Description: "Full or partial house rewires with minimal disruption.",
		Features:    []string{"Minimal Disruption", "Safety Certified", "Modern Solutions", "10-Year Guarantee"},
	},
}
