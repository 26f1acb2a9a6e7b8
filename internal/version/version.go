package version

// Version is the current release of partscope
const Version = "0.4.2"
