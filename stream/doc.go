// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package stream validates data stream, edge processed and fused records at construction.

Every candidate is checked against a fixed rule set (source type membership, score
ranges, mandatory fields) before a record is returned. Defaults such as generated
identifiers and timestamps come from providers that can be replaced with WithClock
and WithRandom.
*/
package stream
