// Package models defines the domain types shared by the analysis pipeline, the auth layer and the HTTP API.
//
// The package contains two groups of types:
//
// 1. Analysis values, created once per uploaded image and immutable afterwards:
//   - [Label] : a vision label with its confidence score
//   - [Color] : a dominant color with its hex encoding
//   - [EmotionVector] : per-face emotion likelihoods
//   - [AnalysisResult] : everything derived from one vision call
//   - [Recommendation] : a song suggested for an analysis
//
// 2. Identity values owned by a session:
//   - [Credential] : the Spotify OAuth credential of an authenticated user
//   - [Profile] : the public part of a credential
package models
