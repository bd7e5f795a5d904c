package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it, and how
// to interpret results.

func describeReferences() string {
	return `Extracts every external class referenced by a set of compiled JVM class files, archives, and XML layouts.

USE WHEN:
- Computing the dependency surface of a compiled module before shrinking or repackaging
- Verifying that a build output only references expected APIs
- Building keep-lists for obfuscators or bundlers
- Auditing which framework classes an artifact actually touches

INTERPRETING RESULTS:
- report: sorted, deduplicated fully qualified class names referenced by the inputs
- A file's references never include its own class; cross-file references between inputs are kept
- Types declared by generated stub sources are excluded from the report
- warnings: files whose generic signatures were malformed (lenient mode records them instead of failing)
- errors: inputs that could not be decoded and were skipped (unless fail_fast)
- summary.fingerprint: stable hash of the report, identical across runs and worker counts

RESULTS RETURNED:
- report: the aggregated class-name list
- files: per-file class name and reference list
- summary: file counts, per-file reference mean and standard deviation, fingerprint`
}

func describeClasses() string {
	return `Lists the classes declared by compiled JVM class files with their superclass, interfaces, and reference counts.

USE WHEN:
- Inventorying what a build output actually contains
- Checking class/file correspondence after a build step
- Spot-checking one artifact without running a full reference analysis

INTERPRETING RESULTS:
- class: the fully qualified name declared by the file, dot-separated with $ for nesting
- super: java.lang.Object for ordinary root classes; absent only for java.lang.Object itself
- references: count of distinct external classes the file mentions

RESULTS RETURNED:
- One row per class file: file path, class, super, interfaces, reference count`
}

func describeLayouts() string {
	return `Extracts the class names referenced by XML layout descriptors (custom view elements and class-valued attributes).

USE WHEN:
- Finding which view classes a resource tree instantiates reflectively
- Explaining why a class appears in a reference report without any bytecode reference
- Auditing layout files for references to removed classes

INTERPRETING RESULTS:
- Fully qualified element names (dotted, uppercase-initial final segment) are treated as class references
- Attributes named class, name, or context, and attributes ending in Class, contribute their values
- Malformed XML yields an empty class list for that file, never an error

RESULTS RETURNED:
- One row per layout file: file path and the extracted class names`
}
