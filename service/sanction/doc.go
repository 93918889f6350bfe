// Package sanction implements the multi-party approval machine gating
// irreversible lifecycle changes: registration approval, embargo,
// retraction, embargo termination and schema-response approval. Each
// required authorizer holds a single-use approval and rejection token;
// approvals commute, the first rejection wins, and unresolved sanctions are
// swept to a provider-configured default once their grace period elapses.
package sanction
