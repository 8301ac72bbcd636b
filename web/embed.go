package web

import "embed"

// StaticFS embeds the frontend (index.html, js).
//
//go:embed static/*
var StaticFS embed.FS
