// Package visibility decides what a requester may see of an artifact
// version. The decision table crosses the requester's role with the
// version's review state; withdrawn versions additionally carry a redaction
// set whose content depends on whether the version was ever public.
package visibility
