package models

type LookupKind string

const (
	KindSuccess              LookupKind = "success"
	KindConfigurationMissing LookupKind = "configuration_missing"
	KindNotFound             LookupKind = "not_found"
	KindTransportFailure     LookupKind = "transport_failure"
	KindSchemaMismatch       LookupKind = "schema_mismatch"
	KindUnexpected           LookupKind = "unexpected"
)

// LookupResult is the outcome of one weather lookup. Exactly one kind is set;
// Report is only present on success.
type LookupResult struct {
	Kind         LookupKind     `json:"kind"`
	Location     string         `json:"location"`
	Report       *WeatherReport `json:"report,omitempty"`
	Detail       string         `json:"detail,omitempty"`
	MissingField string         `json:"missing_field,omitempty"`
}

func Success(location string, report WeatherReport) LookupResult {
	return LookupResult{Kind: KindSuccess, Location: location, Report: &report}
}

func ConfigurationMissing(location string) LookupResult {
	return LookupResult{Kind: KindConfigurationMissing, Location: location}
}

func NotFound(location string) LookupResult {
	return LookupResult{Kind: KindNotFound, Location: location}
}

func TransportFailure(location, detail string) LookupResult {
	return LookupResult{Kind: KindTransportFailure, Location: location, Detail: detail}
}

func SchemaMismatch(location, missingField string) LookupResult {
	return LookupResult{Kind: KindSchemaMismatch, Location: location, MissingField: missingField}
}

func Unexpected(location, detail string) LookupResult {
	return LookupResult{Kind: KindUnexpected, Location: location, Detail: detail}
}

func (r LookupResult) OK() bool {
	return r.Kind == KindSuccess
}
