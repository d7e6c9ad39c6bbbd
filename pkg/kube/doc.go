// Package kube models Kubernetes-style resources as untyped mappings and
// provides the namespace override transform applied before deployment.
//
// Resource shape (single resource vs. List-kind collection) is decided once
// at the parse boundary via [Classify]; the override itself is a total, pure,
// idempotent structural recursion.
package kube
