// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package turnstile verifies Cloudflare Turnstile tokens on the vote path.

The Verifier fails open on anything that smells like an outage (network
error, timeout, unreadable body) and treats an actual answer from the
siteverify endpoint as authoritative: an explicit rejection or a non-200
status denies. With no secret configured it allows every request without
calling out, which is how development and test deployments run.
*/
package turnstile
