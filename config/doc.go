// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package config loads the credential, edge node and learning configuration groups.

Values are read once from the process environment, layered over an optional config
file and typed defaults. Missing mandatory credentials and non-numeric values for
numeric settings are startup errors; callers are expected to abort rather than recover.
*/
package config
