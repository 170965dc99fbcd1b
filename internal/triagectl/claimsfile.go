package triagectl

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"claimguard/internal/claims/models"
)

// claimsFile is the offline evaluation input:
//
//	as_of: 2025-08-20
//	assessments:
//	  img/0042.jpg: {severity: major, confidence: 0.98}
//	claims:
//	  - id: CLM-0042
//	    policy_number: "66777"
//	    incident_date: 2025-08-16
//	    claimed_amount: "12345.00"
//	    reported_severity: Major Damage
//	    collision_type: front-end
//	    vehicle_count: 2
//	    image_ref: img/0042.jpg
//	    signals:
//	      - {name: speed, observed: 44, limit: 35, unit: mph}
type claimsFile struct {
	AsOf        string                             `yaml:"as_of"`
	Assessments map[string]models.VisionAssessment `yaml:"assessments"`
	Claims      []claimEntry                       `yaml:"claims"`
}

type claimEntry struct {
	ID               string                 `yaml:"id"`
	PolicyNumber     string                 `yaml:"policy_number"`
	IncidentDate     string                 `yaml:"incident_date"`
	Location         string                 `yaml:"location"`
	ClaimedAmount    models.Money           `yaml:"claimed_amount"`
	ReportedSeverity string                 `yaml:"reported_severity"`
	CollisionType    string                 `yaml:"collision_type"`
	VehicleCount     int                    `yaml:"vehicle_count"`
	Description      string                 `yaml:"description"`
	ImageRef         string                 `yaml:"image_ref"`
	Signals          []models.ContextSignal `yaml:"signals"`
}

func (e claimEntry) toRequest() (models.SubmitRequest, error) {
	incident, err := time.Parse(time.DateOnly, e.IncidentDate)
	if err != nil {
		return models.SubmitRequest{}, fmt.Errorf("incident_date %q: want YYYY-MM-DD", e.IncidentDate)
	}
	severity, err := models.ParseSeverity(e.ReportedSeverity)
	if err != nil {
		return models.SubmitRequest{}, err
	}
	collision, err := models.ParseCollisionType(e.CollisionType)
	if err != nil {
		return models.SubmitRequest{}, err
	}
	return models.SubmitRequest{
		ID: e.ID,
		ClaimInput: models.ClaimInput{
			PolicyNumber:     e.PolicyNumber,
			IncidentDate:     incident,
			Location:         e.Location,
			ClaimedAmount:    e.ClaimedAmount,
			ReportedSeverity: severity,
			CollisionType:    collision,
			VehicleCount:     e.VehicleCount,
			Description:      e.Description,
			ImageRef:         e.ImageRef,
			Signals:          e.Signals,
		},
	}, nil
}

func decodeClaimsFile(r io.Reader) (claimsFile, error) {
	var f claimsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return f, fmt.Errorf("claims file is empty")
		}
		return f, fmt.Errorf("decode claims file: %w", err)
	}
	if len(f.Claims) == 0 {
		return f, fmt.Errorf("claims file has no claims")
	}
	return f, nil
}

func readClaimsFile(path string) (claimsFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return claimsFile{}, fmt.Errorf("open claims file: %w", err)
	}
	defer fh.Close()
	return decodeClaimsFile(fh)
}

// asOf is the reference date for incident-date checks.
func (f claimsFile) asOf() (time.Time, error) {
	if f.AsOf == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, f.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of %q: want YYYY-MM-DD", f.AsOf)
	}
	// End of day so incidents on as_of itself are not in the future.
	return t.Add(23 * time.Hour), nil
}
