// Package testutil holds helpers shared by store and harness tests.
package testutil
