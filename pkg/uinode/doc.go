// Package uinode models the UI container returned by the identity API for a
// self-service flow: an ordered list of nodes, each tagged with a group and
// carrying exactly one attribute variant (input, image, text, anchor, script).
//
// Values decoded by this package are treated as immutable by renderers. The
// attribute union is closed: every variant implements Accept(AttributeVisitor),
// so adding a variant without extending the visitor breaks the build for every
// consumer that dispatches on node kind.
package uinode
