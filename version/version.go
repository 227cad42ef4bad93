package version

// Version is overridden at build time with -ldflags "-X=...".
var Version string = "0.0.0"
