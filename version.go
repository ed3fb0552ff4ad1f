package nikl

// Version is the library version reported by the CLI.
const Version = "0.2.0"
