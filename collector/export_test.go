package collector

// Exported aliases for testing internal functions from
// the collector_test package.

// CandidateNameForTest exposes candidateName.
var CandidateNameForTest = candidateName

// LocateFilesForTest exposes locateFiles.
var LocateFilesForTest = locateFiles
